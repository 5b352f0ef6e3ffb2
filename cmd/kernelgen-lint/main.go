package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-kernelgen/pkg/kernel"
	"github.com/goliatone/go-kernelgen/pkg/manifest"
	"github.com/goliatone/go-kernelgen/pkg/verify"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0]))
		fmt.Fprintf(flag.CommandLine.Output(), "\nLint kernel manifests for operations, tensors, and shaders the compiler cannot serve.\n")
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{
			"examples/manifests/scale-clip.yaml",
			"examples/manifests/abs.json",
		}
	}

	compiler, err := kernel.New()
	if err != nil {
		log.Fatalf("Failed to build compiler: %v", err)
	}

	ctx := context.Background()
	loader := manifest.NewLoader()

	var violations []violation
	for _, path := range paths {
		linted, err := lintFile(ctx, loader, compiler, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].file == violations[j].file {
				if violations[i].location == violations[j].location {
					return violations[i].message < violations[j].message
				}
				return violations[i].location < violations[j].location
			}
			return violations[i].file < violations[j].file
		})
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
		os.Exit(1)
	}
}

func lintFile(ctx context.Context, loader *manifest.Loader, compiler *kernel.Compiler, path string) ([]violation, error) {
	doc, err := loader.Load(ctx, manifest.SourceFromFile(path))
	if err != nil {
		return nil, err
	}

	m, err := manifest.Parse(doc)
	if err != nil {
		return nil, err
	}

	g, err := m.Graph()
	if err != nil {
		return []violation{{file: path, location: "manifest", message: err.Error()}}, nil
	}

	var result []violation
	flagged := make(map[string]struct{})

	for _, node := range g.Nodes {
		location := "node " + node.ID()
		if !kernel.Supported(node.Op) {
			result = append(result, violation{
				file:     path,
				location: location,
				message:  fmt.Sprintf("unsupported op %q", node.Op),
			})
			flagged[node.ID()] = struct{}{}
		}
		for _, name := range node.Inputs {
			if name == "" {
				continue
			}
			if _, ok := g.Shapes[name]; !ok {
				result = append(result, violation{
					file:     path,
					location: location,
					message:  fmt.Sprintf("input %q has no declared shape", name),
				})
				flagged[node.ID()] = struct{}{}
			}
		}
		for _, name := range node.Outputs {
			if _, ok := g.Shapes[name]; !ok {
				result = append(result, violation{
					file:     path,
					location: location,
					message:  fmt.Sprintf("output %q has no declared shape", name),
				})
				flagged[node.ID()] = struct{}{}
			}
		}
	}

	order, err := g.Sort()
	if err != nil {
		result = append(result, violation{file: path, location: "graph", message: err.Error()})
		return result, nil
	}

	// Dry-run the scheduled nodes that passed the structural checks so arity,
	// rendering, and shader problems surface without writing any output. The
	// validation step catches what substitution alone cannot, like two inputs
	// sanitising to the same binding name.
	for _, node := range order {
		if _, ok := flagged[node.ID()]; ok {
			continue
		}
		compiled, err := compiler.Compile(node, g.Shapes)
		if err != nil {
			result = append(result, violation{
				file:     path,
				location: "node " + node.ID(),
				message:  err.Error(),
			})
			continue
		}
		if err := verify.Program(compiled.Program); err != nil {
			result = append(result, violation{
				file:     path,
				location: "node " + node.ID(),
				message:  err.Error(),
			})
		}
	}

	return result, nil
}
