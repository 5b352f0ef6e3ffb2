package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	kernelgen "github.com/goliatone/go-kernelgen"
	"github.com/goliatone/go-kernelgen/pkg/kernel"
	"github.com/goliatone/go-kernelgen/pkg/manifest"
	"github.com/goliatone/go-kernelgen/pkg/orchestrator"
	"github.com/goliatone/go-kernelgen/pkg/shader"
	"github.com/goliatone/go-kernelgen/pkg/verify"
)

const (
	emitWGSL  = "wgsl"
	emitSPIRV = "spirv"
)

func main() {
	manifestPath := flag.String("manifest", "", "kernel manifest (.yaml or .json) to compile")
	output := flag.String("output", "", "output directory in manifest mode, output buffer name in map mode")
	emit := flag.String("emit", emitWGSL, "artifact to emit: wgsl or spirv")
	op := flag.String("op", "", "builtin function for a one-shot map kernel")
	input := flag.String("input", "input_0", "input buffer name for map kernels")
	interactive := flag.Bool("interactive", false, "build a map kernel from prompts")
	verifyOut := flag.Bool("verify", false, "validate every generated kernel")
	workgroup := flag.Uint("workgroup", 0, "workgroup size substituted into kernels (0 keeps the default)")
	flag.Parse()

	if *emit != emitWGSL && *emit != emitSPIRV {
		log.Fatalf("invalid -emit %q: want %s or %s", *emit, emitWGSL, emitSPIRV)
	}

	switch {
	case *interactive:
		runInteractive(*emit, *verifyOut, *workgroup)
	case *manifestPath != "":
		runManifest(*manifestPath, *output, *emit, *verifyOut, *workgroup)
	case *op != "":
		runMap(*op, *input, *output, *emit, *verifyOut, *workgroup)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runManifest(path, outDir, emit string, verifyOut bool, workgroup uint) {
	if outDir == "" {
		outDir = "kernels"
	}

	var options []orchestrator.Option
	if workgroup > 0 {
		options = append(options, orchestrator.WithWorkgroupSize(uint32(workgroup)))
	}
	if verifyOut {
		options = append(options, orchestrator.WithVerification())
	}

	plan, err := kernelgen.GenerateKernels(context.Background(), manifest.SourceFromFile(path), options...)
	if err != nil {
		log.Fatalf("Failed to generate kernels: %v", err)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", outDir, err)
	}

	for _, k := range plan.Kernels {
		data, ext, err := emitProgram(k.Program, emit)
		if err != nil {
			log.Fatalf("Failed to compile %s: %v", k.Name, err)
		}
		target := filepath.Join(outDir, kernel.SanitizeName(k.Name)+ext)
		if err := os.WriteFile(target, data, 0o644); err != nil {
			log.Fatalf("Failed to write %s: %v", target, err)
		}
		fmt.Printf("Kernel %s written to %s\n", k.Name, target)
	}
}

func runMap(op, inputName, outputName, emit string, verifyOut bool, workgroup uint) {
	if outputName == "" {
		outputName = "output_0"
	}

	var options []kernel.Option
	if workgroup > 0 {
		options = append(options, kernel.WithWorkgroupSize(uint32(workgroup)))
	}

	program, err := kernelgen.MapKernel(inputName, outputName, op, options...)
	if err != nil {
		log.Fatalf("Failed to generate kernel: %v", err)
	}
	if verifyOut {
		if err := verify.Program(program); err != nil {
			log.Fatalf("Kernel rejected: %v", err)
		}
	}

	data, _, err := emitProgram(program, emit)
	if err != nil {
		log.Fatalf("Failed to compile %s: %v", program.Name, err)
	}
	if emit == emitSPIRV {
		if _, err := os.Stdout.Write(data); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		return
	}
	fmt.Print(string(data))
}

func runInteractive(emit string, verifyOut bool, workgroup uint) {
	var op string
	askOne(&survey.Select{
		Message:  "Builtin to apply:",
		Options:  kernel.MapOps(),
		PageSize: 10,
	}, &op)

	var inputName string
	askOne(&survey.Input{
		Message: "Input buffer name:",
		Default: "input_0",
	}, &inputName, survey.WithValidator(survey.Required))

	var outputName string
	askOne(&survey.Input{
		Message: "Output buffer name:",
		Default: "output_0",
	}, &outputName, survey.WithValidator(survey.Required))

	validate := verifyOut
	askOne(&survey.Confirm{
		Message: "Validate the generated shader?",
		Default: verifyOut,
	}, &validate)

	runMap(op, inputName, outputName, emit, validate, workgroup)
}

func askOne(prompt survey.Prompt, response any, opts ...survey.AskOpt) {
	if err := survey.AskOne(prompt, response, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			fmt.Println("Aborted.")
			os.Exit(1)
		}
		log.Fatalf("Prompt failed: %v", err)
	}
}

func emitProgram(p shader.Program, emit string) ([]byte, string, error) {
	if emit == emitSPIRV {
		module, err := verify.CompileSPIRV(p)
		if err != nil {
			return nil, "", err
		}
		return module, ".spv", nil
	}
	return []byte(p.Source), ".wgsl", nil
}
