/*
Package server hosts the page and its modules over HTTP with gin.

Routes:

	GET  /                rendered page
	GET  /health          status and module statistics
	GET  /metrics         prometheus exposition
	GET  /modules         registered modules with their state
	POST /events          publish a JSON event on the bus
	POST /dom/:id/:type   dispatch a DOM event to an element
	GET  /ws?filter=...   websocket stream of matching bus events

Every handler that touches the document or the bus runs its work through
the Loop, so the core only ever sees one caller at a time.
*/
package server
