// asdmgr - Aerospike daemon lifecycle sidecar
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/asdmgr

/*
Package config loads the sidecar configuration with koanf.

# Layers

Later layers override earlier ones:

 1. Struct defaults (defaultConfig)
 2. YAML file: CONFIG_PATH, then asdmgr.yaml, then /etc/asdmgr/config.yaml
 3. Environment variables (see envTransformFunc)
 4. Command line: cobra flags bound by BindFlags, then legacy key=value
    arguments

# Legacy arguments

The positional form of the original launcher script is still accepted:

	asdmgr etcdip=10.0.0.5 svc_label=AS_Server svc_idx=2 mode=mesh \
	    ip=10.0.0.1,10.0.0.2 port=3002 mem=64 disks=4 profile=performance

etcdip without a port gets the etcd client port 2379. Unknown keys are an
error.

# Validation

Validate runs validator/v10 struct tags and then the cross field rules:
mesh needs seed addresses and a port, multicast needs a group address and a
port, and the disk count must fit the disk pool.
*/
package config
