package lottery

// IsOwner reports whether caller is the lottery owner.
func (e *Engine) IsOwner(caller Identity) bool {
	return e != nil && caller != (Identity{}) && caller == e.owner
}

// IsManager reports whether caller currently holds the manager role.
func (e *Engine) IsManager(caller Identity) (bool, error) {
	var member bool
	err := e.view(func() error {
		managers, err := e.state.LotteryManagers()
		if err != nil {
			return err
		}
		member = indexOf(managers, caller) >= 0
		return nil
	})
	return member, err
}

func (e *Engine) requireOwner(caller Identity) error {
	if !e.IsOwner(caller) {
		return ErrUnauthorized
	}
	return nil
}

func (e *Engine) requireOwnerOrManager(caller Identity) error {
	if e.IsOwner(caller) {
		return nil
	}
	if caller == (Identity{}) {
		return ErrUnauthorized
	}
	managers, err := e.state.LotteryManagers()
	if err != nil {
		return err
	}
	if indexOf(managers, caller) < 0 {
		return ErrUnauthorized
	}
	return nil
}

// AddManager appoints id as a manager. Owner only.
func (e *Engine) AddManager(caller, id Identity) error {
	return e.run(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		if id == (Identity{}) || id == e.owner {
			return ErrInvalidArgument
		}
		managers, err := e.state.LotteryManagers()
		if err != nil {
			return err
		}
		if indexOf(managers, id) >= 0 {
			return ErrInvalidArgument
		}
		if len(managers) >= e.maxManagers {
			return ErrTooManyManagers
		}
		managers = append(managers, id)
		if err := e.state.PutLotteryManagers(managers); err != nil {
			return err
		}
		e.emit(ManagerChangedEvent(EventTypeManagerAdded, id, len(managers)))
		return nil
	})
}

// RemoveManager revokes the manager role from id. Owner only.
func (e *Engine) RemoveManager(caller, id Identity) error {
	return e.run(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		managers, err := e.state.LotteryManagers()
		if err != nil {
			return err
		}
		idx := indexOf(managers, id)
		if idx < 0 {
			return ErrNotFound
		}
		remaining := make([]Identity, 0, len(managers)-1)
		remaining = append(remaining, managers[:idx]...)
		remaining = append(remaining, managers[idx+1:]...)
		if err := e.state.PutLotteryManagers(remaining); err != nil {
			return err
		}
		e.emit(ManagerChangedEvent(EventTypeManagerRemoved, id, len(remaining)))
		return nil
	})
}

// ListManagers returns the managers in appointment order. Owner only.
func (e *Engine) ListManagers(caller Identity) ([]Identity, error) {
	var out []Identity
	err := e.view(func() error {
		if err := e.requireOwner(caller); err != nil {
			return err
		}
		managers, err := e.state.LotteryManagers()
		if err != nil {
			return err
		}
		out = append([]Identity{}, managers...)
		return nil
	})
	return out, err
}

func indexOf(set []Identity, id Identity) int {
	for i, member := range set {
		if member == id {
			return i
		}
	}
	return -1
}
