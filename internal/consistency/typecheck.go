package consistency

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"go/version"
	"os"
	"os/exec"
	"path"
	"strings"

	"golang.org/x/tools/go/packages"

	"atomikgen/internal/emit"
)

// loadMode is what the Go backend check needs from go/packages.
const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedImports

// goEnv isolates the generated module from any enclosing workspace. The
// installed toolchain is used as is; one older than emit.GoVersion makes the
// target unavailable rather than failed.
var goEnv = []string{"GOWORK=off", "GOFLAGS=-mod=mod", "GOTOOLCHAIN=local"}

// typeCheckGo loads the generated Go module, including its tests, and
// verifies that the accumulator exposes the operations the schema enables.
func typeCheckGo(ctx context.Context, job Job) error {
	goenv := exec.CommandContext(ctx, "go", "env", "GOVERSION")
	goenv.Dir = os.TempDir()
	goenv.Env = append(os.Environ(), goEnv...)

	out, err := goenv.Output()
	if err != nil {
		return fmt.Errorf("go env GOVERSION: %w", err)
	}

	if err := requireGoVersion(strings.TrimSpace(string(out))); err != nil {
		return err
	}

	cfg := &packages.Config{
		Mode:    loadMode,
		Context: ctx,
		Dir:     job.Dir,
		Env:     append(os.Environ(), goEnv...),
		Tests:   true,
	}

	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return fmt.Errorf("failed to load packages: %w", err)
	}

	var errs []error

	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("package errors: %w", errors.Join(errs...))
	}

	want := path.Join(emit.GoModule, job.NS.LowerVertical, job.NS.LowerField)

	for _, pkg := range pkgs {
		if pkg.ID == want {
			return checkAPI(pkg.Types, job)
		}
	}

	return fmt.Errorf("package %s not found", want)
}

// requireGoVersion reports ErrUnavailable when toolchain, a GOVERSION string
// such as "go1.21.5", predates the generated go.mod. Development builds are
// accepted.
func requireGoVersion(toolchain string) error {
	want := "go" + emit.GoVersion

	if version.IsValid(toolchain) && version.Compare(toolchain, want) < 0 {
		return fmt.Errorf("%w: %s is older than %s", ErrUnavailable, toolchain, want)
	}

	return nil
}

func checkAPI(pkg *types.Package, job Job) error {
	object := job.NS.Object

	typeName, ok := pkg.Scope().Lookup(object).(*types.TypeName)
	if !ok {
		return fmt.Errorf("type %s not declared in %s", object, pkg.Path())
	}

	if _, ok := pkg.Scope().Lookup("New" + object).(*types.Func); !ok {
		return fmt.Errorf("constructor New%s not declared in %s", object, pkg.Path())
	}

	methods := []string{"Load", "Accumulate", "IsAccumulatorZero", "Accumulator", "InitialState"}
	if job.Schema.Operations.Reconstruct {
		methods = append(methods, "Reconstruct")
	}

	if job.Schema.Operations.Rollback {
		methods = append(methods, "Rollback")
	}

	mset := types.NewMethodSet(types.NewPointer(typeName.Type()))

	var absent []string

	for _, m := range methods {
		if mset.Lookup(pkg, m) == nil {
			absent = append(absent, m)
		}
	}

	if len(absent) > 0 {
		return fmt.Errorf("%s is missing methods %v", object, absent)
	}

	return nil
}
