// Package clipboard provides the in-memory clipboard behind
// clipboard.setText. A Board keeps a bounded history, newest last, and can
// notify subscribers of each write.
package clipboard
