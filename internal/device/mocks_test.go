package device

import (
	"context"
	"sync"

	"github.com/imamik/cellflow/internal/platform/nodered"
	"github.com/imamik/cellflow/internal/platform/octoprint"
)

// mockPrinterAPI is a mock OctoPrint client.
type mockPrinterAPI struct {
	mu sync.Mutex

	PrinterFunc        func(ctx context.Context) (*octoprint.PrinterState, error)
	CurrentJobFunc     func(ctx context.Context) (*octoprint.Job, error)
	SelectAndPrintFunc func(ctx context.Context, file string) error

	CurrentJobCalls     int
	SelectAndPrintCalls []string
}

func (m *mockPrinterAPI) Printer(ctx context.Context) (*octoprint.PrinterState, error) {
	if m.PrinterFunc != nil {
		return m.PrinterFunc(ctx)
	}
	ps := &octoprint.PrinterState{}
	ps.State.Text = octoprint.StateOperational
	return ps, nil
}

func (m *mockPrinterAPI) CurrentJob(ctx context.Context) (*octoprint.Job, error) {
	m.mu.Lock()
	m.CurrentJobCalls++
	m.mu.Unlock()

	if m.CurrentJobFunc != nil {
		return m.CurrentJobFunc(ctx)
	}
	return job(octoprint.StateOperational, "", 100), nil
}

func (m *mockPrinterAPI) SelectAndPrint(ctx context.Context, file string) error {
	m.mu.Lock()
	m.SelectAndPrintCalls = append(m.SelectAndPrintCalls, file)
	m.mu.Unlock()

	if m.SelectAndPrintFunc != nil {
		return m.SelectAndPrintFunc(ctx, file)
	}
	return nil
}

// mockSorterAPI is a mock Node-RED client.
type mockSorterAPI struct {
	mu sync.Mutex

	PingFunc           func(ctx context.Context) error
	TriggerSortingFunc func(ctx context.Context, req nodered.SortRequest) error
	SortingStatusFunc  func(ctx context.Context, stockEntry string) (*nodered.SortStatus, error)

	FlowModeCalls       []string
	TriggerSortingCalls []nodered.SortRequest
	SortingStatusCalls  int
}

func (m *mockSorterAPI) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

func (m *mockSorterAPI) SetFlowMode(_ context.Context, action string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlowModeCalls = append(m.FlowModeCalls, action)
	return nil
}

func (m *mockSorterAPI) TriggerSorting(ctx context.Context, req nodered.SortRequest) error {
	m.mu.Lock()
	m.TriggerSortingCalls = append(m.TriggerSortingCalls, req)
	m.mu.Unlock()

	if m.TriggerSortingFunc != nil {
		return m.TriggerSortingFunc(ctx, req)
	}
	return nil
}

func (m *mockSorterAPI) SortingStatus(ctx context.Context, stockEntry string) (*nodered.SortStatus, error) {
	m.mu.Lock()
	m.SortingStatusCalls++
	m.mu.Unlock()

	if m.SortingStatusFunc != nil {
		return m.SortingStatusFunc(ctx, stockEntry)
	}
	return &nodered.SortStatus{Status: nodered.StatusDone}, nil
}

func job(state, file string, completion float64) *octoprint.Job {
	j := &octoprint.Job{State: state}
	j.Job.File.Name = file
	j.Progress.Completion = &completion
	return j
}
