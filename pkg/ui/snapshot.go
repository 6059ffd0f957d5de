package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/catalogtree/pkg/catalog"
)

// SnapshotMsg carries a published catalog snapshot into the update loop.
type SnapshotMsg struct {
	catalog.Snapshot
}

// WaitForSnapshot returns a command that blocks until sub delivers the next
// snapshot. It yields nil once the subscription is closed.
func WaitForSnapshot(sub *catalog.Subscription) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-sub.C()
		if !ok {
			return nil
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// dwellTickMsg drives the drag dwell timer while the pointer is still.
type dwellTickMsg time.Time

const dwellTickInterval = 100 * time.Millisecond

func dwellTick() tea.Cmd {
	return tea.Tick(dwellTickInterval, func(t time.Time) tea.Msg {
		return dwellTickMsg(t)
	})
}
