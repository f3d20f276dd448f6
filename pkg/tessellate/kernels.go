package tessellate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/fluteforge/pkg/kernel"
	"github.com/chazu/fluteforge/pkg/kernel/bsp"
	"github.com/chazu/fluteforge/pkg/kernel/manifold"
	"github.com/chazu/fluteforge/pkg/kernel/sdfx"
)

// ErrUnknownKernel is returned by KernelByName for unregistered names.
var ErrUnknownKernel = errors.New("unknown boolean kernel")

// DefaultKernel is the backend used when none is configured. Its output
// is fan-triangulated BSP fragments with T-junctions, fine for display and
// drawings but not watertight; sdfx and manifold are the watertight
// backends for STL meant for slicers or simulation.
const DefaultKernel = "bsp"

// KernelNames lists the selectable backends.
func KernelNames() []string {
	return []string{"bsp", "sdfx", "manifold"}
}

// KernelByName returns the named boolean backend. cells sets the marching
// cubes resolution of the sdfx backend and is ignored by the others.
func KernelByName(name string, cells int) (kernel.Kernel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "bsp":
		return bsp.New(), nil
	case "sdfx":
		return sdfx.New(cells), nil
	case "manifold":
		return manifold.New()
	default:
		return nil, fmt.Errorf("%w %q (want one of %s)", ErrUnknownKernel, name, strings.Join(KernelNames(), ", "))
	}
}
