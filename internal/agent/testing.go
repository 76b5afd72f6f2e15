package agent

import (
	"context"
	"fmt"
	"path"
	"strings"
)

const jestConfig = `module.exports = {
  preset: 'ts-jest',
  testEnvironment: 'node',
  roots: ['<rootDir>/src', '<rootDir>/__tests__'],
  testMatch: ['**/__tests__/**/*.test.ts'],
  collectCoverageFrom: ['src/**/*.ts', '!src/**/*.d.ts'],
};
`

type testingAgent struct{}

func (testingAgent) Execute(ctx context.Context, env *Env, task Task) (*Result, error) {
	framework, err := optString(task.Input, "framework", "Jest + Supertest")
	if err != nil {
		return nil, err
	}
	base := task.BasePath()

	all, err := env.Store.List(ctx, base, "backend/src/routes")
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	var routes []string
	for _, r := range all {
		if strings.HasSuffix(r, ".ts") {
			routes = append(routes, r)
		}
	}

	var files []string
	for _, route := range limit(routes, 3) {
		code, err := env.generate(ctx, RoleTesting,
			"You are an expert at writing automated tests.",
			fmt.Sprintf("Generate %s tests for the route module %s.\nCover success and error cases and mock the database.\n\n"+
				"Return only the test code.", framework, route))
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(path.Base(route), ".ts") + ".test.ts"
		if err := env.write(ctx, &files, base, "backend/__tests__/routes/"+name, code); err != nil {
			return nil, err
		}
	}

	if err := env.write(ctx, &files, base, "backend/jest.config.js", jestConfig); err != nil {
		return nil, err
	}

	testFiles := len(limit(routes, 3))
	return &Result{
		FilesGenerated: files,
		OutputPath:     base,
		Summary:        fmt.Sprintf("Tests generated: %d test files created", testFiles),
		Metadata:       map[string]any{"testFiles": testFiles},
	}, nil
}
