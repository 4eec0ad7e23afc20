package async

import (
	"context"
	"fmt"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them.
// The first task to fail cancels the context shared by the others, and its
// error is returned once every task has returned.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "scan loop", Func: loop.Run},
//	    {Name: "ops server", Func: srv.Run},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		name string
		err  error
	}

	resultChan := make(chan result, len(tasks))

	for _, task := range tasks {
		go func() {
			err := task.Func(ctx)
			resultChan <- result{name: task.Name, err: err}
		}()
	}

	var firstError error
	for range len(tasks) {
		res := <-resultChan
		if res.err != nil && firstError == nil {
			firstError = fmt.Errorf("%s: %w", res.name, res.err)
			cancel()
		}
	}

	return firstError
}
