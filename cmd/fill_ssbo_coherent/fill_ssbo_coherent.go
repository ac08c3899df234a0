// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// fill_ssbo_coherent verifies that coherent persistent-mapped shader
// storage buffers observe compute-shader writes correctly while the
// process is traced, across buffer offsets straddling page boundaries.
// Exits 0 on pass, 77 when the driver cannot run the test, 1 on
// failure.
package main

import (
	"os"
	"runtime"

	"github.com/glconform/coherent/fillssbo"
	"github.com/glconform/coherent/gltest"
)

func init() {
	// must lock main thread for GL
	runtime.LockOSThread()
}

func main() {
	w, err := gltest.NewWindow(1024, 1024, "Map coherent")
	if err != nil {
		os.Exit(gltest.ExitCode(err))
	}

	err = fillssbo.Run()

	w.Destroy()
	os.Exit(gltest.ExitCode(err))
}
