package mixer

// Strategy selects which controller variant a source currently runs.
type Strategy int

const (
	// StrategyMock time-simulates playback without a real channel.
	StrategyMock Strategy = iota
	// StrategyLive binds the source to one pooled channel.
	StrategyLive
)

func (s Strategy) String() string {
	if s == StrategyLive {
		return "live"
	}
	return "mock"
}

// activeSource wraps one controller and swaps it between strategies while
// preserving exact mid-playback state. The controller is owned
// exclusively and replaced, never mutated across variants.
type activeSource struct {
	strategy Strategy
	ctrl     Controller
}

func newActiveSource(id Identity, data SourceData, env *Env) (*activeSource, error) {
	ctrl, err := newMockController(id, data, env)
	if err != nil {
		return nil, err
	}
	return &activeSource{strategy: StrategyMock, ctrl: ctrl}, nil
}

// enforce moves the source to the target strategy. The replacement is
// constructed from a snapshot before the old controller is stopped, so a
// failed construction (pool exhausted, content gone) leaves the source
// running as it was.
func (s *activeSource) enforce(target Strategy, env *Env) error {
	if s.strategy == target {
		return nil
	}

	snap := s.ctrl.Snapshot()
	id := s.ctrl.Identity()

	var next Controller
	var err error
	switch target {
	case StrategyLive:
		next, err = newLiveController(id, snap, env)
	default:
		next, err = newMockController(id, snap, env)
	}
	if err != nil {
		return err
	}

	s.ctrl.Stop()
	s.ctrl = next
	s.strategy = target
	return nil
}
