package ecs

// UpdateFrame is handed to every system during Manager.Update.
type UpdateFrame struct {
	DeltaTime float64
	Number    uint64
	Manager   *Manager
	Commands  *Commands
}

func newUpdateFrame(dt float64, m *Manager) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Number:    m.frame,
		Manager:   m,
		Commands:  m.pending,
	}
}
