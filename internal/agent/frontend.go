package agent

import (
	"context"
	"encoding/json"
	"fmt"
)

var defaultComponents = []string{"Header", "Footer"}

type frontendAgent struct{}

func (frontendAgent) Execute(ctx context.Context, env *Env, task Task) (*Result, error) {
	names, err := optStringList(task.Input, "components", defaultComponents)
	if err != nil {
		return nil, err
	}
	components := make([]string, 0, len(names))
	for _, n := range names {
		c, err := componentName("components", n)
		if err != nil {
			return nil, err
		}
		components = append(components, c)
	}
	base := task.BasePath()
	var files []string

	pkg, err := json.MarshalIndent(map[string]any{
		"name":    "generated-frontend",
		"version": "1.0.0",
		"scripts": map[string]string{"dev": "next dev", "build": "next build", "start": "next start"},
		"dependencies": map[string]string{
			"react":     "^18.3.1",
			"react-dom": "^18.3.1",
			"next":      "^14.2.3",
		},
		"devDependencies": map[string]string{
			"@types/node":  "^20.11.19",
			"@types/react": "^18.2.55",
			"typescript":   "^5.4.5",
		},
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := env.write(ctx, &files, base, "frontend/package.json", string(pkg)+"\n"); err != nil {
		return nil, err
	}

	page, err := env.generate(ctx, RoleFrontend,
		"You are an expert React and Next.js developer.",
		fmt.Sprintf("Generate a Next.js App Router home page in TypeScript.\nRequirements: %s\n\nReturn only the TSX code.", task.Objective))
	if err != nil {
		return nil, err
	}
	if err := env.write(ctx, &files, base, "frontend/app/page.tsx", page); err != nil {
		return nil, err
	}

	layout, err := env.generate(ctx, RoleFrontend,
		"You are an expert Next.js developer.",
		"Generate a Next.js root layout component with a metadata export. Return only the TSX code.")
	if err != nil {
		return nil, err
	}
	if err := env.write(ctx, &files, base, "frontend/app/layout.tsx", layout); err != nil {
		return nil, err
	}

	for _, c := range limit(components, 3) {
		code, err := env.generate(ctx, RoleFrontend,
			"You are an expert React developer.",
			fmt.Sprintf("Generate a React component named %s with a typed props interface.\nContext: %s\n\nReturn only the TSX code.", c, task.Objective))
		if err != nil {
			return nil, err
		}
		if err := env.write(ctx, &files, base, "frontend/components/"+c+".tsx", code); err != nil {
			return nil, err
		}
	}

	return &Result{
		FilesGenerated: files,
		OutputPath:     base + "/frontend",
		Summary:        fmt.Sprintf("Frontend generated: %d components, Next.js + TypeScript", len(limit(components, 3))),
		Metadata:       map[string]any{"components": len(limit(components, 3))},
	}, nil
}
