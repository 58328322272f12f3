package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/metamorph-dev/metamorph/internal/meta"
	"github.com/metamorph-dev/metamorph/internal/metamodel"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error code constants (E000-E099).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
)

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult contains the outcome of loading a schema directory.
type LoadResult struct {
	Classes   []*meta.Class
	FileCount int // Number of CUE files found
}

// LoadSchema loads CUE schema files from a directory, compiles them into
// classes and runs structural validation.
//
// If mode is LoadModeFailFast, returns on the first error. If mode is
// LoadModeCollectAll, compile errors still end the load (nothing to
// validate) but all validation errors are reported together.
func LoadSchema(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	classes, err := CompileSchema(value)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}}
	}

	result := &LoadResult{
		Classes:   classes,
		FileCount: len(cueFiles),
	}

	var errs []error
	for _, verr := range Validate(classes) {
		errs = append(errs, verr)
		if mode == LoadModeFailFast {
			return result, errs
		}
	}
	return result, errs
}

// BuildStore seeds an in-memory metamodel store from a load result.
// Validation must already have passed: duplicate or dangling declarations
// surface here as store errors.
func BuildStore(result *LoadResult) (*metamodel.Memory, error) {
	store := metamodel.NewMemory()
	for _, c := range result.Classes {
		if _, err := store.CreateClass(c.Name, c.SuperTypes, c.Abstract, c.Interface); err != nil {
			return nil, err
		}
	}
	// Second pass so references can target classes declared later.
	for _, c := range result.Classes {
		for _, a := range c.Attributes {
			if _, err := store.AddAttribute(c.Name, a.Name, a.Type, a.Lower, a.Upper); err != nil {
				return nil, err
			}
		}
		for _, r := range c.References {
			if _, err := store.AddReference(c.Name, r.Target, r.Name, r.Containment, r.Lower, r.Upper); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
