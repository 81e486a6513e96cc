/*
Package pageworld runs untrusted page scripts in a goja VM.

Scripts cannot reach the host directly: require, process, module and exports
are removed, and timers are no-ops. The only way out is

	bridge.call(method, ...params)

which performs a synchronous client call and returns the result, or throws
an Error whose message is the call's error string.

Every Execute is bounded by Config.Timeout and the caller's context. When
either ends, the VM is interrupted and in-flight bridge calls are
cancelled.

# Usage

	rt, err := pageworld.New(pageworld.DefaultConfig(), client, logger)
	if err != nil {
		return err
	}
	res, err := rt.Execute(ctx, `bridge.call("storage.set", "seen", true)`)
*/
package pageworld
