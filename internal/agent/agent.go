// Package agent maps a contract's free-text role to one of a closed set of
// generation strategies and runs it against a generation backend and an
// artifact store.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Role identifies a generation strategy
type Role string

const (
	RoleArchitect  Role = "architect"
	RoleBackend    Role = "backend"
	RoleFrontend   Role = "frontend"
	RoleSecurity   Role = "security"
	RoleTesting    Role = "testing"
	RoleDeployment Role = "deployment"
)

// Roles lists every known role in routing order
var Roles = []Role{RoleArchitect, RoleBackend, RoleFrontend, RoleSecurity, RoleTesting, RoleDeployment}

var (
	ErrUnknownAgent = errors.New("no such agent")
	ErrInvalidInput = errors.New("invalid contract input")
)

// roleKeywords are matched as case-insensitive substrings, first match wins
var roleKeywords = []struct {
	role     Role
	keywords []string
}{
	{RoleArchitect, []string{"architect"}},
	{RoleBackend, []string{"backend"}},
	{RoleFrontend, []string{"frontend"}},
	{RoleSecurity, []string{"security"}},
	{RoleTesting, []string{"testing", "test"}},
	{RoleDeployment, []string{"deploy", "devops"}},
}

// ParseRole resolves free text such as "Backend Agent" to a Role
func ParseRole(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name != "" {
		for _, rk := range roleKeywords {
			for _, kw := range rk.keywords {
				if strings.Contains(name, kw) {
					return rk.role, nil
				}
			}
		}
	}
	return "", Permanent(fmt.Errorf("%w: %q", ErrUnknownAgent, s))
}

// PermanentError marks a failure that retrying cannot fix
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError; nil stays nil
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return err
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err or anything it wraps is permanent
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Task is what a strategy needs to know about a contract
type Task struct {
	ContractID string
	PipelineID string
	ProjectID  string
	Agent      string
	Objective  string
	Input      map[string]any
}

// BasePath is the artifact root shared by every agent of a project
func (t Task) BasePath() string {
	return "project-" + t.ProjectID
}

// GenerationRequest is one call to a text generation backend
type GenerationRequest struct {
	Role   Role
	System string
	Prompt string
}

// Generator produces text for a prompt. Implementations return a
// PermanentError for failures such as invalid credentials.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Name() string
}

// ArtifactStore persists generated files. Write overwrites and returns the
// location of the written artifact.
type ArtifactStore interface {
	Write(ctx context.Context, basePath, relPath, content string) (string, error)
	Read(ctx context.Context, basePath, relPath string) (content string, found bool, err error)
	List(ctx context.Context, basePath, prefix string) ([]string, error)
}

// Result is what a strategy hands back to the worker
type Result struct {
	FilesGenerated []string
	OutputPath     string
	Summary        string
	Metadata       map[string]any
}

// ToOutput renders the result as the contract output document
func (r *Result) ToOutput() map[string]any {
	files := make([]any, len(r.FilesGenerated))
	for i, f := range r.FilesGenerated {
		files[i] = f
	}
	meta := r.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	return map[string]any{
		"success":        true,
		"filesGenerated": files,
		"outputPath":     r.OutputPath,
		"summary":        r.Summary,
		"metadata":       meta,
	}
}
