package capture

import "context"

// Binder stores a canonical numeric value into a form field.
type Binder interface {
	Commit(field string, value string) error
}

// BindFunc adapts a function to the Binder interface.
type BindFunc func(field string, value string) error

func (f BindFunc) Commit(field string, value string) error {
	return f(field, value)
}

// Committer receives the trimmed transcript of a chat capture.
type Committer interface {
	Commit(context.Context, string) error
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, string) error

func (f CommitFunc) Commit(ctx context.Context, transcript string) error {
	return f(ctx, transcript)
}
