package script

import (
	"errors"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/infrastructure/logging"
)

var (
	ErrNoCreate = errors.New("script does not define a create function")
	ErrTimeout  = errors.New("script execution timeout exceeded")
)

// Config defines script execution limits
type Config struct {
	Timeout          time.Duration // Per call, nested calls included
	MaxCallStackSize int
}

// DefaultConfig returns the default limits
func DefaultConfig() Config {
	return Config{
		Timeout:          5 * time.Second,
		MaxCallStackSize: 1024,
	}
}

// Runtime wraps the goja VM of one module. It is not safe for concurrent
// use; calls are expected to come from the event loop.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	logger *logging.Logger
	depth  int
}

func newRuntime(config Config, logger *logging.Logger) *Runtime {
	if logger == nil {
		logger = logging.NewNop()
	}
	vm := goja.New()
	if config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	r := &Runtime{vm: vm, config: config, logger: logger}
	r.setupGlobals()
	return r
}

// setupGlobals removes host escape hatches and adds console
func (r *Runtime) setupGlobals() {
	for _, name := range []string{"require", "process", "module", "exports"} {
		_ = r.vm.Set(name, goja.Undefined())
	}

	console := r.vm.NewObject()
	_ = console.Set("log", r.consoleFunc(r.logger.Info))
	_ = console.Set("info", r.consoleFunc(r.logger.Info))
	_ = console.Set("warn", r.consoleFunc(r.logger.Warn))
	_ = console.Set("error", r.consoleFunc(r.logger.Error))
	_ = r.vm.Set("console", console)
}

func (r *Runtime) consoleFunc(write func(string, ...zap.Field)) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		write(joinArgs(call.Arguments))
		return goja.Undefined()
	}
}

func joinArgs(args []goja.Value) string {
	msg := ""
	for i, arg := range args {
		if i > 0 {
			msg += " "
		}
		msg += arg.String()
	}
	return msg
}

// call runs fn under the execution timeout. Only the outermost call arms
// the timer, so callbacks invoked from inside a script share its budget.
func (r *Runtime) call(fn func() (goja.Value, error)) (goja.Value, error) {
	if r.depth > 0 {
		r.depth++
		defer func() { r.depth-- }()
		return fn()
	}

	r.depth++
	var timer *time.Timer
	if r.config.Timeout > 0 {
		timer = time.AfterFunc(r.config.Timeout, func() {
			r.vm.Interrupt(ErrTimeout)
		})
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		r.vm.ClearInterrupt()
		r.depth--
	}()

	val, err := fn()
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if cause, ok := interrupted.Value().(error); ok {
			return nil, cause
		}
	}
	return val, err
}

// invoke calls a script function with Go arguments
func (r *Runtime) invoke(fn goja.Callable, args ...interface{}) (goja.Value, error) {
	return r.invokeOn(goja.Undefined(), fn, args...)
}

// invokeOn is invoke with an explicit receiver
func (r *Runtime) invokeOn(this goja.Value, fn goja.Callable, args ...interface{}) (goja.Value, error) {
	values := make([]goja.Value, len(args))
	for i, arg := range args {
		values[i] = r.vm.ToValue(arg)
	}
	return r.call(func() (goja.Value, error) {
		return fn(this, values...)
	})
}

// export converts a script value to Go, mapping undefined and null to nil
func export(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
