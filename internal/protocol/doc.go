// Package protocol defines the messages exchanged between the page world and
// the bridge.
//
// Every request and reply travels as a JSON envelope:
//
//	{"kind":"request","id":"req_01H...","token":"...","method":"storage.get","params":["k",null]}
//	{"kind":"reply","id":"req_01H...","ok":true,"result":"v"}
//	{"kind":"reply","id":"req_01H...","ok":false,"error":"unauthorized","code":"unauthorized"}
//
// Failures are classified into a small taxonomy (unauthorized, unknown method,
// capability unavailable, handler error, timeout). Clients surface them as
// *CallError values that unwrap to the matching sentinel, so callers can use
// errors.Is without parsing strings.
package protocol
