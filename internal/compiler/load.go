package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/tyinfer/internal/ir"
)

// LoadFiles compiles CUE files and unifies them into one value, in the order
// given. Every file must be valid CUE on its own.
func LoadFiles(paths ...string) (cue.Value, error) {
	if len(paths) == 0 {
		return cue.Value{}, fmt.Errorf("no CUE files given")
	}

	ctx := cuecontext.New()
	var value cue.Value
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("reading %s: %w", path, err)
		}
		fv := ctx.CompileBytes(data, cue.Filename(path))
		if err := fv.Err(); err != nil {
			return cue.Value{}, formatCUEError(err)
		}
		if i == 0 {
			value = fv
		} else {
			value = value.Unify(fv)
		}
	}

	if err := value.Validate(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return value, nil
}

// DecodeProblems decodes every problem declared under "problem" in v, in
// declaration order. A value without problems yields an empty slice.
func DecodeProblems(v cue.Value) ([]*ProblemSpec, error) {
	specs := []*ProblemSpec{}

	problemsVal := v.LookupPath(cue.ParsePath("problem"))
	if !problemsVal.Exists() {
		return specs, nil
	}

	iter, err := problemsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		spec, err := DecodeProblem(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("problem %s: %w", iter.Label(), err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// CompileProblems decodes and builds every problem in v, failing on the
// first invalid one.
func CompileProblems(v cue.Value) ([]*ir.Problem, error) {
	specs, err := DecodeProblems(v)
	if err != nil {
		return nil, err
	}
	problems := make([]*ir.Problem, 0, len(specs))
	for _, spec := range specs {
		p, err := BuildProblem(spec)
		if err != nil {
			return nil, fmt.Errorf("problem %s: %w", spec.Name, err)
		}
		problems = append(problems, p)
	}
	return problems, nil
}
