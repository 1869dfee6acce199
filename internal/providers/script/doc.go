// Package script runs module widgets written in JavaScript.
//
// A script defines create(sandbox), which returns an object with optional
// start and end functions. Each module gets its own goja runtime with a
// script view of its sandbox:
//
//	function create(sandbox) {
//		return {
//			start: function () {
//				sandbox.events.subscribe({topic: "weather"}, function (evt) {
//					sandbox.dom.setText("city", evt.city);
//				});
//			},
//		};
//	}
//
// The view exposes getId, events (subscribe, unsubscribe, publish), dom
// (getText, setText, addClass, removeClass, on), i18n (getString,
// getSelectedLanguage), url (getHash, setHash, getLocation) and utils
// (log, getTimestamp, setTimeout, clearTimeout). Calls are interrupted
// once they exceed the configured timeout.
package script
