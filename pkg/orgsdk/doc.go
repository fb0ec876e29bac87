/*
Package orgsdk is a thin client for the organization directory HTTP API and
the home of its wire types, which the server encodes as well.

Unauthenticated calls live on SDKClient:

	c := orgsdk.NewSDKClient("http://localhost:8080")
	org, err := c.CreateOrganization(ctx, orgsdk.CreateOrganizationRequest{
		Name:        "SRM",
		AdminEmail:  "admin@srm.example",
		AdminSecret: "correct horse battery staple",
	})

Login returns a Session carrying the admin's bearer token; mutations of the
organization go through the Session:

	s, err := c.Login(ctx, "admin@srm.example", "correct horse battery staple", "")
	org, err = s.UpdateOrganization(ctx, "SRM", orgsdk.UpdateOrganizationRequest{
		Name: orgsdk.Ptr("SRM University"),
	})

Errors returned by the server decode into *APIError; use IsCode to branch on
the error code.
*/
package orgsdk
