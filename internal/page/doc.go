// Package page models the browsing context both worlds live in.
//
// A Window has an origin, a top frame and a Document. The Document is an
// x/net/html tree; the bridge inserts and removes <style> elements in its
// head and uses its textarea copy path as the clipboard fallback. Neither
// world holds a reference to the other: they share only the window they are
// loaded into and the transports bound to it.
package page
