package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// StudyPlanAgent drafts personal study plans.
type StudyPlanAgent struct {
	base
}

// NewStudyPlanAgent creates the study-plan agent.
func NewStudyPlanAgent(c gemini.Completer, cfg gemini.GenerationConfig) *StudyPlanAgent {
	return &StudyPlanAgent{base{completer: c, cfg: cfg}}
}

func (a *StudyPlanAgent) Name() string { return "study_plan" }

// Run dispatches one study-plan operation.
func (a *StudyPlanAgent) Run(ctx context.Context, op Operation, params Params) Result {
	switch op {
	case OpGeneratePlan:
		return a.GeneratePlan(ctx, params.value("goal", ""), params.value("timeframe", "one month"), params.value("current_level", "intermediate"))
	default:
		return unsupported(a.Name(), op)
	}
}

// GeneratePlan returns a plain-text study plan toward a goal.
func (a *StudyPlanAgent) GeneratePlan(ctx context.Context, goal, timeframe, currentLevel string) Result {
	if strings.TrimSpace(goal) == "" {
		return missingParam("goal")
	}

	prompt := fmt.Sprintf(
		"You are an English learning coach.\n"+
			"Draft a study plan for a %s learner whose goal is: %s.\n"+
			"The plan covers %s, broken into weekly steps with concrete activities.\n"+
			"Answer in plain prose with no markdown and no headings.",
		currentLevel, goal, timeframe)

	raw, err := a.generate(ctx, prompt)
	if err != nil {
		return FromError(err, raw)
	}
	return TextResult(StripMarkup(raw), raw)
}
