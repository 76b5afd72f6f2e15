package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Strategy generates the artifacts of one role
type Strategy interface {
	Execute(ctx context.Context, env *Env, task Task) (*Result, error)
}

// Env gives strategies access to their collaborators
type Env struct {
	Generator Generator
	Store     ArtifactStore
	Log       *zap.Logger
}

// generate calls the backend and strips markdown fences from the reply
func (e *Env) generate(ctx context.Context, role Role, system, prompt string) (string, error) {
	out, err := e.Generator.Generate(ctx, GenerationRequest{Role: role, System: system, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("%s generation: %w", role, err)
	}
	return stripCodeFence(out), nil
}

// write stores one artifact and appends its location to files
func (e *Env) write(ctx context.Context, files *[]string, base, rel, content string) error {
	loc, err := e.Store.Write(ctx, base, rel, content)
	if err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	e.Log.Debug("artifact written", zap.String("path", rel))
	*files = append(*files, loc)
	return nil
}

// Router dispatches tasks to strategies by role
type Router struct {
	env        *Env
	strategies map[Role]Strategy
}

func NewRouter(gen Generator, store ArtifactStore, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		env: &Env{Generator: gen, Store: store, Log: log},
		strategies: map[Role]Strategy{
			RoleArchitect:  architectAgent{},
			RoleBackend:    backendAgent{},
			RoleFrontend:   frontendAgent{},
			RoleSecurity:   securityAgent{},
			RoleTesting:    testingAgent{},
			RoleDeployment: deploymentAgent{},
		},
	}
}

// Resolve reports the strategy role for free-text agent names
func (r *Router) Resolve(agent string) (Role, error) {
	role, err := ParseRole(agent)
	if err != nil {
		return "", err
	}
	if _, ok := r.strategies[role]; !ok {
		return "", Permanent(fmt.Errorf("%w: %q", ErrUnknownAgent, agent))
	}
	return role, nil
}

// Execute runs the strategy for task.Agent. Unknown roles fail before any
// generation call.
func (r *Router) Execute(ctx context.Context, task Task) (*Result, error) {
	role, err := r.Resolve(task.Agent)
	if err != nil {
		return nil, err
	}
	if task.Input == nil {
		task.Input = map[string]any{}
	}
	r.env.Log.Info("executing agent",
		zap.String("contract_id", task.ContractID),
		zap.String("role", string(role)),
		zap.String("generator", r.env.Generator.Name()))

	res, err := r.strategies[role].Execute(ctx, r.env, task)
	if err != nil {
		return nil, err
	}
	if res.Metadata == nil {
		res.Metadata = map[string]any{}
	}
	res.Metadata["role"] = string(role)
	res.Metadata["generator"] = r.env.Generator.Name()
	return res, nil
}

func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	} else {
		return s
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t) + "\n"
}
