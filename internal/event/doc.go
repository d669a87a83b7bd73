/*
Package event publishes what happens while mloq resolves and writes a
project, so that logging and the --explain report can observe a run without
the resolver depending on them.

# Architecture

Events travel through a watermill gochannel. Every event type is a topic;
SubscribeAll listens on a catch-all topic that receives a copy of every
event. Publishing blocks until all subscribers acknowledged the message, so
delivery keeps the order of the single-threaded run.

# Event Types

  - parameter.resolved: one parameter got its final value (ParameterResolvedData)
  - namespace.synced: a namespace was flattened to concrete values (NamespaceSyncedData)
  - file.written / file.skipped: the record writer touched a file (FileData)
  - config.changed: setup --watch saw a configuration file change (ConfigChangedData)

Payloads are JSON encoded; use Event.Decode to read them back.
*/
package event
