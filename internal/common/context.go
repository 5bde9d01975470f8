package common

import (
	"context"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyWorkerID  contextKey = "worker_id"
	ContextKeyReference contextKey = "reference"
)

// WithWorkerID adds the claiming worker's instance id to the context
func WithWorkerID(ctx context.Context, workerID string) context.Context {
	return context.WithValue(ctx, ContextKeyWorkerID, workerID)
}

// WorkerIDFromContext extracts the worker instance id from context
func WorkerIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyWorkerID).(string); ok {
		return id
	}
	return ""
}

// WithReference adds a case reference to the context
func WithReference(ctx context.Context, reference string) context.Context {
	return context.WithValue(ctx, ContextKeyReference, reference)
}

// ReferenceFromContext extracts the case reference from context
func ReferenceFromContext(ctx context.Context) string {
	if ref, ok := ctx.Value(ContextKeyReference).(string); ok {
		return ref
	}
	return ""
}
