package apirisk

import "github.com/triage-ai/querygate/internal/safety"

// pathRiskTable maps risk levels to method to path templates. There is no
// LOW table: unmatched paths default to MEDIUM, not LOW.
var pathRiskTable = map[safety.RiskLevel]map[string][]string{
	safety.RiskExtreme: {
		"DELETE": {
			"/v1/projects/{ref}", // Delete project. Irreversible, complete data loss.
		},
	},
	safety.RiskHigh: {
		"DELETE": {
			"/v1/projects/{ref}/branches/{branch_id}",
			"/v1/projects/{ref}/branches",
			"/v1/projects/{ref}/custom-hostname",
			"/v1/projects/{ref}/vanity-subdomain",
			"/v1/projects/{ref}/network-bans",
			"/v1/projects/{ref}/secrets",
			"/v1/projects/{ref}/functions/{function_slug}",
			"/v1/projects/{ref}/api-keys/{id}",
			"/v1/projects/{ref}/config/auth/sso/providers/{provider_id}",
			"/v1/projects/{ref}/config/auth/signing-keys/{id}",
		},
		"POST": {
			"/v1/projects/{ref}/pause",
			"/v1/projects/{ref}/restore",
			"/v1/projects/{ref}/upgrade",
			"/v1/projects/{ref}/read-replicas/remove",
			"/v1/projects/{ref}/restore/cancel",
			"/v1/projects/{ref}/readonly/temporary-disable",
		},
	},
	safety.RiskMedium: {
		"POST": {
			"/v1/projects",
			"/v1/organizations",
			"/v1/projects/{ref}/branches",
			"/v1/projects/{ref}/branches/{branch_id}/push",
			"/v1/projects/{ref}/branches/{branch_id}/reset",
			"/v1/projects/{ref}/custom-hostname/initialize",
			"/v1/projects/{ref}/custom-hostname/reverify",
			"/v1/projects/{ref}/custom-hostname/activate",
			"/v1/projects/{ref}/network-bans/retrieve",
			"/v1/projects/{ref}/network-restrictions/apply",
			"/v1/projects/{ref}/secrets",
			"/v1/projects/{ref}/upgrade/status",
			"/v1/projects/{ref}/database/webhooks/enable",
			"/v1/projects/{ref}/functions",
			"/v1/projects/{ref}/functions/deploy",
			"/v1/projects/{ref}/config/auth/sso/providers",
			"/v1/projects/{ref}/database/backups/restore-pitr",
			"/v1/projects/{ref}/read-replicas/setup",
			"/v1/projects/{ref}/database/query",
			"/v1/projects/{ref}/config/auth/signing-keys",
			"/v1/oauth/token",
			"/v1/oauth/revoke",
			"/v1/projects/{ref}/api-keys",
		},
		"PATCH": {
			"/v1/projects/{ref}/config/auth",
			"/v1/projects/{ref}/config/database/pooler",
			"/v1/projects/{ref}/postgrest",
			"/v1/projects/{ref}/functions/{function_slug}",
			"/v1/projects/{ref}/config/storage",
			"/v1/branches/{branch_id}",
			"/v1/projects/{ref}/api-keys/{id}",
			"/v1/projects/{ref}/config/auth/signing-keys/{id}",
		},
		"PUT": {
			"/v1/projects/{ref}/config/database/postgres",
			"/v1/projects/{ref}/pgsodium",
			"/v1/projects/{ref}/ssl-enforcement",
			"/v1/projects/{ref}/functions",
			"/v1/projects/{ref}/config/auth/sso/providers/{provider_id}",
		},
	},
}
