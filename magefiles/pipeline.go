//go:build mage

package main

import (
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run figure-miner stages.
type Pipeline mg.Namespace

func run(args ...string) error {
	bin := "bin/" + binName
	return sh.RunV(bin, args...)
}

// Fetch downloads bundles for the query in $QUERY.
func (Pipeline) Fetch() error {
	mg.Deps(Build, Init)
	return run("fetch", "--query", os.Getenv("QUERY"))
}

// Extract mines the bundles for figures and captions.
func (Pipeline) Extract() error {
	mg.Deps(Build)
	return run("extract")
}

// Index rebuilds the caption search index.
func (Pipeline) Index() error {
	mg.Deps(Build)
	return run("index", "build")
}

// All runs fetch, extract, and index in order.
func (Pipeline) All() {
	mg.SerialDeps(Pipeline.Fetch, Pipeline.Extract, Pipeline.Index)
}
