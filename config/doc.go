// Package config loads ipfilter configurations from YAML documents and
// IPFILTER_* environment variables.
//
// Environment variables (a .env file in the working directory is loaded
// first when present):
//
//	IPFILTER_MODE              allow | deny (default deny)
//	IPFILTER_MATCH             exact | cidr | range (default exact)
//	IPFILTER_ALLOW_PRIVATE     true | false
//	IPFILTER_RULES             comma-separated entries, ranges as low-high
//	IPFILTER_RULES_FILE        YAML file with a rules list, appended
//	IPFILTER_SOURCE            x_forwarded_for | forwarded | x_real_ip | remote_addr | header name
//	IPFILTER_TRUSTED_PROXIES   comma-separated CIDRs or addresses
//	IPFILTER_MAX_CHAIN_LENGTH  default 100
//	IPFILTER_DENY_STATUS       default 401
//	IPFILTER_DENY_MESSAGE      default Unauthorized
//	IPFILTER_LOG               log decisions through slog.Default()
//	IPFILTER_LOG_GRANTED       default true
//
// A YAML document uses the same keys in camel case:
//
//	mode: allow
//	match: range
//	allowPrivate: true
//	rules:
//	  - 203.0.113.7
//	  - 198.51.100.1-198.51.100.9
//	  - [192.0.2.10, 192.0.2.20]
//
// Load a configuration and build the filter:
//
//	cfg, err := config.FromEnv()
//	if err != nil {
//		log.Fatal(err)
//	}
//	filter, err := cfg.NewFilter()
package config
