package model

import "fmt"

// Stage identifies one step of the memo generation sequence. The order of the
// constants is the execution order; comparisons between stages are meaningful.
type Stage int

const (
	StageStart Stage = iota // nothing produced yet
	StageResearch
	StageDraft
	StageEnrichTrademark
	StageEnrichSocials
	StageEnrichLinks
	StageEnrichVisualizations
	StageCite
	StageTOC
	StageValidateCitations
	StageFactCheck
	StageValidate
	StageFinalize
	StageComplete // all artifacts present, nothing left to run
)

// StageHumanReview is a sub-state entered from validate when the overall score
// falls below the quality threshold. It is not part of the execution order.
const StageHumanReview Stage = -1

var stageNames = map[Stage]string{
	StageStart:                "start",
	StageResearch:             "research",
	StageDraft:                "draft",
	StageEnrichTrademark:      "enrich_trademark",
	StageEnrichSocials:        "enrich_socials",
	StageEnrichLinks:          "enrich_links",
	StageEnrichVisualizations: "enrich_visualizations",
	StageCite:                 "cite",
	StageTOC:                  "toc",
	StageValidateCitations:    "validate_citations",
	StageFactCheck:            "fact_check",
	StageValidate:             "validate",
	StageFinalize:             "finalize",
	StageComplete:             "complete",
	StageHumanReview:          "human_review",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageFromName resolves a stage name back to its identifier.
func StageFromName(name string) (Stage, error) {
	for stage, n := range stageNames {
		if n == name {
			return stage, nil
		}
	}
	return StageStart, fmt.Errorf("unknown stage: %q", name)
}

// ExecutableStages returns the stages that have a handler, in execution order.
func ExecutableStages() []Stage {
	return []Stage{
		StageResearch,
		StageDraft,
		StageEnrichTrademark,
		StageEnrichSocials,
		StageEnrichLinks,
		StageEnrichVisualizations,
		StageCite,
		StageTOC,
		StageValidateCitations,
		StageFactCheck,
		StageValidate,
		StageFinalize,
	}
}
