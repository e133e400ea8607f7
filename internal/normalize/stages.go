package normalize

// Stages records which of the four downstream stages are enabled, driven by
// the stage-selection flag state machine below. The zero value is "nothing
// decided yet"; defaultStages seeds the usual all-on state before any flag
// is applied.
type Stages struct {
	Parse     bool
	Compile   bool
	Elaborate bool
	WritePP   bool
}

func defaultStages() Stages {
	return Stages{Parse: true, Compile: true, Elaborate: true, WritePP: false}
}

// tri is a tri-state trigger value for one cell of the state-machine table:
// nil means "unchanged" (the table's "—"), otherwise it is the new value.
type tri = *bool

func on() tri  { v := true; return &v }
func off() tri { v := false; return &v }

type stageTrigger struct {
	parse, compile, elaborate, writePP tri
}

// stageTriggers maps each stage-selection flag to the stage set it forces.
// Flags not listed here leave the stage set unchanged.
var stageTriggers = map[string]stageTrigger{
	"-parse":     {on(), on(), on(), on()},
	"-parseonly": {on(), off(), off(), on()},
	"-sepcomp":   {on(), off(), off(), on()},
	"-noparse":   {off(), off(), off(), nil},
	"-nocomp":    {nil, off(), off(), nil},
	"-noelab":    {nil, nil, off(), nil},
	"-elabuhdm":  {nil, nil, on(), nil},
}

// apply mutates s according to flag's trigger row, if any. It reports
// whether flag was a recognized stage-selection flag.
func (s *Stages) apply(flag string) bool {
	t, ok := stageTriggers[flag]
	if !ok {
		return false
	}
	if t.parse != nil {
		s.Parse = *t.parse
	}
	if t.compile != nil {
		s.Compile = *t.compile
	}
	if t.elaborate != nil {
		s.Elaborate = *t.elaborate
	}
	if t.writePP != nil {
		s.WritePP = *t.writePP
	}
	return true
}
