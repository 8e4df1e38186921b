//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
)

const (
	shaderDir = "assets/shaders"
	binary    = "bin/tessera"
)

type Build mg.Namespace

// Compiles every GLSL stage under assets/shaders to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and builds the engine binary into bin/.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	if err := goTidy(); err != nil {
		return err
	}
	if _, err := executeCmd("go", withArgs("build", "-o", binary, "."), withStream()); err != nil {
		return err
	}
	return nil
}

func buildShaders() error {
	var stages []string
	for _, pattern := range []string{"*.vert", "*.frag"} {
		matches, err := filepath.Glob(filepath.Join(shaderDir, pattern))
		if err != nil {
			return err
		}
		stages = append(stages, matches...)
	}
	if len(stages) == 0 {
		return fmt.Errorf("no shader stages found in %s", shaderDir)
	}
	for _, stage := range stages {
		out := stage + ".spv"
		if upToDate(stage, out) {
			continue
		}
		if _, err := executeCmd("glslc", withArgs(filepath.Base(stage), "-o", filepath.Base(out)), withDir(shaderDir), withStream()); err != nil {
			return err
		}
	}
	fmt.Printf("Compiled shaders in %s\n", strings.TrimSuffix(shaderDir, "/"))
	return nil
}

// upToDate reports whether out exists and is newer than src.
func upToDate(src, out string) bool {
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	oi, err := os.Stat(out)
	if err != nil {
		return false
	}
	return oi.ModTime().After(si.ModTime())
}
