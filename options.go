package rustscript

import (
	"bufio"
	"fmt"
	"io"

	"github.com/oarkflow/log"
)

type Option func(*Interpreter) error

func WithLogger(logger *log.Logger) Option {
	return func(in *Interpreter) error {
		if logger == nil {
			return fmt.Errorf("logger is nil")
		}
		in.logger = logger
		return nil
	}
}

func WithRuntimeConfig(cfg RuntimeConfig) Option {
	return func(in *Interpreter) error {
		in.cfg = cfg
		return nil
	}
}

func WithRuntimeOverride(ov RuntimeConfigOverride) Option {
	return func(in *Interpreter) error {
		in.cfg = ov.apply(in.cfg)
		return nil
	}
}

func WithStdout(w io.Writer) Option {
	return func(in *Interpreter) error {
		if w == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		in.stdout = w
		return nil
	}
}

func WithStdin(r io.Reader) Option {
	return func(in *Interpreter) error {
		if r == nil {
			in.stdin = nil
			return nil
		}
		if br, ok := r.(*bufio.Reader); ok {
			in.stdin = br
			return nil
		}
		in.stdin = bufio.NewReader(r)
		return nil
	}
}

// WithFileReader replaces the reader used for imports and prelude files.
func WithFileReader(files FileReader) Option {
	return func(in *Interpreter) error {
		if files == nil {
			return fmt.Errorf("file reader is nil")
		}
		in.files = files
		return nil
	}
}

// WithSourceDir sets the directory relative imports of the global scope
// resolve against.
func WithSourceDir(dir string) Option {
	return func(in *Interpreter) error {
		in.sourceDir = dir
		return nil
	}
}

// WithPrelude evaluates the given script files into every new global scope,
// after the standard prelude.
func WithPrelude(paths ...string) Option {
	return func(in *Interpreter) error {
		in.preludeFiles = append(in.preludeFiles, paths...)
		return nil
	}
}
