package script

import (
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/legalbox/swa/internal/domain/sandbox"
	"github.com/legalbox/swa/internal/providers/document"
	"github.com/legalbox/swa/internal/shared/id"
	"github.com/legalbox/swa/internal/shared/types"
)

// bind builds the script view of sb
func (r *Runtime) bind(sb *sandbox.Sandbox) goja.Value {
	if sb == nil {
		return goja.Null()
	}

	obj := r.vm.NewObject()
	_ = obj.Set("getId", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || goja.IsUndefined(call.Argument(0)) {
			return r.vm.ToValue(sb.GetID())
		}
		return r.vm.ToValue(sb.GetID(call.Argument(0).String()))
	})
	if sb.Events != nil {
		_ = obj.Set("events", r.bindEvents(sb.Events))
	}
	if sb.DOM != nil && sb.CSS != nil {
		_ = obj.Set("dom", r.bindDOM(sb))
	}
	if sb.I18n != nil {
		_ = obj.Set("i18n", r.bindI18n(sb.I18n))
	}
	if sb.URL != nil {
		_ = obj.Set("url", r.bindURL(sb.URL))
	}
	if sb.Utils != nil {
		_ = obj.Set("utils", r.bindUtils(sb.Utils))
	}
	return obj
}

func (r *Runtime) bindEvents(events sandbox.EventsCapability) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("subscribe", func(call goja.FunctionCall) goja.Value {
		callback, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(r.vm.NewTypeError("subscribe: callback is not a function"))
		}
		filter, _ := export(call.Argument(0)).(map[string]interface{})
		events.Subscribe(types.Filter(filter), func(evt types.Event) error {
			_, err := r.invoke(callback, map[string]interface{}(evt))
			return err
		})
		return goja.Undefined()
	})
	_ = obj.Set("unsubscribe", func(filter map[string]interface{}) {
		events.Unsubscribe(types.Filter(filter))
	})
	_ = obj.Set("publish", func(evt map[string]interface{}) {
		events.Publish(types.Event(evt))
	})
	return obj
}

func (r *Runtime) bindDOM(sb *sandbox.Sandbox) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("getText", func(localID string) goja.Value {
		el := sb.DOM.ByID(localID)
		if el == nil {
			return goja.Null()
		}
		return r.vm.ToValue(document.TextContent(el))
	})
	_ = obj.Set("setText", func(localID, text string) bool {
		el := sb.DOM.ByID(localID)
		if el == nil {
			return false
		}
		document.SetText(el, text)
		return true
	})
	_ = obj.Set("addClass", func(localID, name string) {
		if el := sb.DOM.ByID(localID); el != nil {
			sb.CSS.AddClass(el, name)
		}
	})
	_ = obj.Set("removeClass", func(localID, name string) {
		if el := sb.DOM.ByID(localID); el != nil {
			sb.CSS.RemoveClass(el, name)
		}
	})
	_ = obj.Set("on", func(call goja.FunctionCall) goja.Value {
		callback, ok := goja.AssertFunction(call.Argument(2))
		if !ok {
			panic(r.vm.NewTypeError("on: callback is not a function"))
		}
		localID, eventType := call.Argument(0).String(), call.Argument(1).String()

		el := sb.GetBox(false)
		if localID != "" {
			el = sb.DOM.ByID(localID)
		}
		if el == nil {
			return r.vm.ToValue(false)
		}
		l := sb.DOM.AddListener(el, eventType, func(evt types.Event) {
			if _, err := r.invoke(callback, map[string]interface{}(evt)); err != nil {
				sb.Logger().Warn("Script listener failed", zap.String("type", eventType), zap.Error(err))
			}
		})
		return r.vm.ToValue(l != nil)
	})
	return obj
}

func (r *Runtime) bindI18n(i18n sandbox.I18nCapability) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("getString", func(call goja.FunctionCall) goja.Value {
		var langs []string
		if lang := call.Argument(1); !goja.IsUndefined(lang) && !goja.IsNull(lang) {
			langs = append(langs, lang.String())
		}
		value, ok := i18n.GetString(call.Argument(0).String(), langs...)
		if !ok {
			return goja.Null()
		}
		return r.vm.ToValue(value)
	})
	_ = obj.Set("getSelectedLanguage", i18n.GetSelectedLanguage)
	return obj
}

func (r *Runtime) bindURL(url sandbox.URLCapability) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("getHash", url.GetHash)
	_ = obj.Set("setHash", url.SetHash)
	_ = obj.Set("getLocation", url.GetLocation)
	return obj
}

func (r *Runtime) bindUtils(utils sandbox.UtilsCapability) *goja.Object {
	obj := r.vm.NewObject()
	_ = obj.Set("log", func(call goja.FunctionCall) goja.Value {
		utils.Log(joinArgs(call.Arguments))
		return goja.Undefined()
	})
	_ = obj.Set("getTimestamp", utils.GetTimestamp)
	_ = obj.Set("setTimeout", func(call goja.FunctionCall) goja.Value {
		callback, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(r.vm.NewTypeError("setTimeout: callback is not a function"))
		}
		delay := time.Duration(call.Argument(1).ToInteger()) * time.Millisecond

		timerID := utils.SetTimeout(func() {
			if _, err := r.invoke(callback); err != nil {
				r.logger.Warn("Script timer failed", zap.Error(err))
			}
		}, delay)
		return r.vm.ToValue(timerID.String())
	})
	_ = obj.Set("clearTimeout", func(timerID string) {
		utils.ClearTimeout(id.TimerID(timerID))
	})
	return obj
}
