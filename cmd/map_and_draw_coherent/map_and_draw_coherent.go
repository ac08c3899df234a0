// Copyright (c) 2025, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// map_and_draw_coherent verifies that CPU writes into coherent
// persistent-mapped color, vertex, and index buffers are observed by
// rasterization while the process is traced, rendering a tessellated
// quad colored from the mapped SSBO and blitting it to the window.
// Exits 0 on pass, 77 when the driver cannot run the test, 1 on
// failure.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/glconform/coherent/gltest"
	"github.com/glconform/coherent/mapdraw"
)

func init() {
	// must lock main thread for GL
	runtime.LockOSThread()
}

func main() {
	fmt.Printf("getSystemPageSize: %d\n", gltest.PageSize())

	w, err := gltest.NewWindow(1024, 1024, "Map coherent")
	if err != nil {
		os.Exit(gltest.ExitCode(err))
	}

	err = mapdraw.Run(w)

	w.Destroy()
	os.Exit(gltest.ExitCode(err))
}
