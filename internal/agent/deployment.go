package agent

import (
	"context"
	"fmt"
)

const composeTemplate = `services:
  backend:
    build: ./backend
    ports:
      - "4000:4000"
    env_file:
      - ./backend/.env
    depends_on:
      - db
  frontend:
    build: ./frontend
    ports:
      - "3000:3000"
    depends_on:
      - backend
  db:
    image: postgres:16-alpine
    environment:
      POSTGRES_USER: app
      POSTGRES_PASSWORD: app
      POSTGRES_DB: app
    volumes:
      - db-data:/var/lib/postgresql/data

volumes:
  db-data:
`

const ciWorkflow = `name: ci

on:
  push:
    branches: [main]
  pull_request:

jobs:
  build:
    runs-on: ubuntu-latest
    strategy:
      matrix:
        app: [backend, frontend]
    defaults:
      run:
        working-directory: ${{ matrix.app }}
    steps:
      - uses: actions/checkout@v4
      - uses: actions/setup-node@v4
        with:
          node-version: 20
      - run: npm ci
      - run: npm run build
      - run: npm test --if-present
`

type deploymentAgent struct{}

func (deploymentAgent) Execute(ctx context.Context, env *Env, task Task) (*Result, error) {
	platform, err := optString(task.Input, "platform", "docker")
	if err != nil {
		return nil, err
	}
	base := task.BasePath()
	var files []string

	for _, app := range []string{"backend", "frontend"} {
		dockerfile, err := env.generate(ctx, RoleDeployment,
			"You are a DevOps engineer. Produce minimal, secure container images.",
			fmt.Sprintf("Write a multi-stage Dockerfile for the Node.js %s application.\nTarget platform: %s\nObjective: %s\n\n"+
				"Return only the Dockerfile.", app, platform, task.Objective))
		if err != nil {
			return nil, err
		}
		if err := env.write(ctx, &files, base, app+"/Dockerfile", dockerfile); err != nil {
			return nil, err
		}
	}
	if err := env.write(ctx, &files, base, "docker-compose.yml", composeTemplate); err != nil {
		return nil, err
	}
	if err := env.write(ctx, &files, base, ".github/workflows/ci.yml", ciWorkflow); err != nil {
		return nil, err
	}

	return &Result{
		FilesGenerated: files,
		OutputPath:     base,
		Summary:        fmt.Sprintf("Deployment generated for %s: Dockerfiles, compose stack and CI workflow", platform),
		Metadata:       map[string]any{"platform": platform},
	}, nil
}
