// Visitline - Visitor Presence Timeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/visitline

/*
Package supervisor provides suture v4 process supervision for Visitline.

The tree has two layers under a root supervisor:

	visitline (root)
	├── messaging-layer
	│   ├── presence-hub      (hub.Hub, when enabled)
	│   └── presence-channel  (presence.Channel: enter on start, leave on stop)
	└── api-layer
	    └── http-server       (chi router)

A crash in the messaging layer restarts only that layer's services; the API
keeps serving the last known visitor list. Supervisor events are logged
through sutureslog backed by the zerolog adapter:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewHubService(h))
	tree.AddMessagingService(services.NewPresenceService(ch))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	return tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
