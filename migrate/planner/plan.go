package planner

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Plan is an ordered sequence of steps.
type Plan struct {
	Steps []*Step
}

// IsNoop reports whether the plan has no steps, i.e. the database already matches.
func IsNoop(p *Plan) bool {
	return p == nil || len(p.Steps) == 0
}

// Destructiveness is the most severe classification among the steps.
func (p *Plan) Destructiveness() Destructiveness {
	out := safe()
	for _, s := range p.Steps {
		if s.Destructiveness.Level > out.Level {
			out = s.Destructiveness
		}
	}
	return out
}

// Warnings returns the Warning steps.
func (p *Plan) Warnings() []*Step {
	return p.filter(func(s *Step) bool { return s.Destructiveness.Level == Warning })
}

// Unexecutable returns the steps that block the plan.
func (p *Plan) Unexecutable() []*Step {
	return p.filter(func(s *Step) bool { return s.Destructiveness.Level == Unexecutable })
}

// InPhase returns the steps of one phase in plan order.
func (p *Plan) InPhase(phase Phase) []*Step {
	return p.filter(func(s *Step) bool { return s.Phase == phase })
}

// Summary returns one line per step.
func (p *Plan) Summary() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Summary()
	}
	return out
}

// CheckExecutable returns an *UnexecutableStepError when any step is unexecutable.
func (p *Plan) CheckExecutable() error {
	if steps := p.Unexecutable(); len(steps) > 0 {
		return &UnexecutableStepError{Steps: steps}
	}
	return nil
}

func (p *Plan) filter(keep func(*Step) bool) []*Step {
	var out []*Step
	for _, s := range p.Steps {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

type planDocument struct {
	Destructiveness string         `yaml:"destructiveness"`
	Steps           []stepDocument `yaml:"steps"`
}

type stepDocument struct {
	Kind    string `yaml:"kind"`
	Phase   string `yaml:"phase"`
	Table   string `yaml:"table,omitempty"`
	Object  string `yaml:"object,omitempty"`
	Level   string `yaml:"level"`
	Reason  string `yaml:"reason,omitempty"`
	Summary string `yaml:"summary"`
}

// MarshalYAML renders the plan for review or export.
func (p *Plan) MarshalYAML() (any, error) {
	doc := planDocument{
		Destructiveness: p.Destructiveness().Level.String(),
		Steps:           make([]stepDocument, len(p.Steps)),
	}
	for i, s := range p.Steps {
		doc.Steps[i] = stepDocument{
			Kind:    s.Kind.String(),
			Phase:   s.Phase.String(),
			Table:   s.Table,
			Object:  s.Object(),
			Level:   s.Destructiveness.Level.String(),
			Reason:  s.Destructiveness.Reason,
			Summary: s.Description(),
		}
	}
	return doc, nil
}

// YAML encodes the plan with gopkg.in/yaml.v3.
func (p *Plan) YAML() ([]byte, error) {
	out, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return out, nil
}
