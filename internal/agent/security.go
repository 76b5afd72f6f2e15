package agent

import (
	"context"
	"fmt"
	"strings"
)

var defaultSecurityFocus = []string{"authentication", "input validation", "secrets handling", "dependency risk"}

type securityAgent struct{}

func (securityAgent) Execute(ctx context.Context, env *Env, task Task) (*Result, error) {
	focus, err := optStringList(task.Input, "focus", defaultSecurityFocus)
	if err != nil {
		return nil, err
	}
	base := task.BasePath()

	sources, err := env.Store.List(ctx, base, "backend/src")
	if err != nil {
		return nil, fmt.Errorf("list backend sources: %w", err)
	}
	inventory := "none generated yet"
	if len(sources) > 0 {
		inventory = strings.Join(sources, "\n")
	}

	report, err := env.generate(ctx, RoleSecurity,
		"You are an application security engineer performing a design and code review.",
		fmt.Sprintf("Write a security review report in Markdown.\nObjective: %s\nFocus areas: %s\nBackend source files:\n%s\n\n"+
			"List findings with severity (critical, high, medium, low) and concrete remediation.",
			task.Objective, strings.Join(focus, ", "), inventory))
	if err != nil {
		return nil, err
	}

	var files []string
	if err := env.write(ctx, &files, base, "security/SECURITY_REPORT.md", report); err != nil {
		return nil, err
	}

	return &Result{
		FilesGenerated: files,
		OutputPath:     base + "/security",
		Summary:        fmt.Sprintf("Security review written: %d focus areas, %d source files reviewed", len(focus), len(sources)),
		Metadata:       map[string]any{"focusAreas": len(focus), "filesReviewed": len(sources)},
	}, nil
}
