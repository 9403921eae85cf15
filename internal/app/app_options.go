package app

import (
	"io"
	"os"
)

// AppOptions contains configuration options for creating an App
type AppOptions struct {
	Stdin      *os.File
	Stdout     io.Writer
	Stderr     io.Writer
	ConfigPath string
	Verbose    bool
}

func (o AppOptions) stdin() *os.File {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}

func (o AppOptions) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o AppOptions) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}
