package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/legalbox/swa/internal/domain/module"
	"github.com/legalbox/swa/internal/domain/sandbox"
	"github.com/legalbox/swa/internal/infrastructure/logging"
)

// Source is one module script
type Source struct {
	ID   string
	Name string
	Code string
}

type starter struct {
	rt   *Runtime
	this goja.Value
	fn   goja.Callable
}

func (s starter) Start() error {
	_, err := s.rt.invokeOn(s.this, s.fn)
	return err
}

type ender struct {
	rt   *Runtime
	this goja.Value
	fn   goja.Callable
}

func (e ender) End() error {
	_, err := e.rt.invokeOn(e.this, e.fn)
	return err
}

type lifecycle struct {
	starter
	ender
}

// Creator returns a module creator that evaluates src in a fresh runtime
// and calls its create(sandbox) function. The returned object may define
// start and end; only those present become lifecycle phases.
func Creator(src Source, config Config, logger *logging.Logger) module.Creator {
	return func(sb *sandbox.Sandbox) (interface{}, error) {
		log := logger
		if sb != nil {
			log = sb.Logger()
		}
		rt := newRuntime(config, log)

		if _, err := rt.call(func() (goja.Value, error) {
			return rt.vm.RunScript(src.Name, src.Code)
		}); err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", src.Name, err)
		}

		create, ok := goja.AssertFunction(rt.vm.Get("create"))
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoCreate, src.Name)
		}

		sandboxValue := rt.bind(sb)
		widget, err := rt.call(func() (goja.Value, error) {
			return create(goja.Undefined(), sandboxValue)
		})
		if err != nil {
			return nil, fmt.Errorf("create failed in %s: %w", src.Name, err)
		}

		return rt.wrap(widget), nil
	}
}

// wrap exposes the lifecycle functions defined on the script widget
func (r *Runtime) wrap(widget goja.Value) interface{} {
	if export(widget) == nil {
		return nil
	}
	obj := widget.ToObject(r.vm)

	start, hasStart := goja.AssertFunction(obj.Get("start"))
	end, hasEnd := goja.AssertFunction(obj.Get("end"))

	switch {
	case hasStart && hasEnd:
		return lifecycle{starter{r, obj, start}, ender{r, obj, end}}
	case hasStart:
		return starter{r, obj, start}
	case hasEnd:
		return ender{r, obj, end}
	default:
		return obj
	}
}
