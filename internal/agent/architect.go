package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const apiSpecPath = "architecture/api-spec.json"

var defaultEndpoints = []Endpoint{
	{Method: "GET", Path: "/health", Description: "Service health check"},
}

type architectAgent struct{}

func (architectAgent) Execute(ctx context.Context, env *Env, task Task) (*Result, error) {
	requirements, err := optString(task.Input, "requirements", task.Objective)
	if err != nil {
		return nil, err
	}
	endpoints, err := optEndpoints(task.Input, "endpoints")
	if err != nil {
		return nil, err
	}
	base := task.BasePath()
	var files []string

	readme, err := env.generate(ctx, RoleArchitect,
		"You are a senior software architect. Write concise, concrete design documents in Markdown.",
		fmt.Sprintf("Write an architecture overview for the following system.\n\nObjective: %s\nRequirements: %s\n\n"+
			"Cover components, data model, API surface and deployment topology. Return only Markdown.",
			task.Objective, requirements))
	if err != nil {
		return nil, err
	}
	if err := env.write(ctx, &files, base, "architecture/README.md", readme); err != nil {
		return nil, err
	}

	source := "input"
	if len(endpoints) == 0 {
		endpoints, source = inferEndpoints(ctx, env, task, requirements)
	}
	spec, err := json.MarshalIndent(endpoints, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := env.write(ctx, &files, base, apiSpecPath, string(spec)+"\n"); err != nil {
		return nil, err
	}

	return &Result{
		FilesGenerated: files,
		OutputPath:     base + "/architecture",
		Summary:        fmt.Sprintf("Architecture documented: %d API endpoints", len(endpoints)),
		Metadata:       map[string]any{"apiEndpoints": len(endpoints), "apiSpecSource": source},
	}, nil
}

// inferEndpoints asks the backend for an endpoint list and falls back to a
// minimal spec when the reply is not parseable
func inferEndpoints(ctx context.Context, env *Env, task Task, requirements string) ([]Endpoint, string) {
	out, err := env.generate(ctx, RoleArchitect,
		"You design REST APIs. Reply with JSON only.",
		fmt.Sprintf("List the REST endpoints needed for: %s\nRequirements: %s\n\n"+
			`Reply with a JSON array of objects with "method", "path" and "description" keys.`,
			task.Objective, requirements))
	if err != nil {
		env.Log.Warn("endpoint inference failed", zap.String("contract_id", task.ContractID), zap.Error(err))
		return defaultEndpoints, "default"
	}
	var endpoints []Endpoint
	if err := json.Unmarshal([]byte(extractJSONArray(out)), &endpoints); err != nil || len(endpoints) == 0 {
		return defaultEndpoints, "default"
	}
	valid := endpoints[:0]
	for _, ep := range endpoints {
		if strings.HasPrefix(ep.Path, "/") {
			ep.Method = strings.ToUpper(ep.Method)
			valid = append(valid, ep)
		}
	}
	if len(valid) == 0 {
		return defaultEndpoints, "default"
	}
	return valid, "generated"
}

func extractJSONArray(s string) string {
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
