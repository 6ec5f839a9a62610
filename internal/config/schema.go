package config

// ConfigSchema is the JSON Schema for client configuration files. Unknown
// keys are rejected so typos surface at load time instead of silently
// falling back to defaults.
const ConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "server": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "address": {
          "type": "string",
          "description": "Controller address: host:port, or a ws:// URL for the websocket transport"
        },
        "transport": {
          "type": "string",
          "enum": ["tcp", "websocket"]
        },
        "dial_timeout_seconds": {
          "type": "integer",
          "minimum": 0
        },
        "insecure_skip_verify": {
          "type": "boolean"
        }
      }
    },
    "shell": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "timeout_seconds": {
          "type": "integer",
          "minimum": 0
        },
        "path": {
          "type": "string"
        }
      }
    },
    "transfer": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_file_bytes": {
          "type": "integer",
          "minimum": 0
        }
      }
    },
    "limits": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "actions_per_second": {
          "type": "number",
          "minimum": 0
        },
        "burst": {
          "type": "integer",
          "minimum": 0
        }
      }
    },
    "metrics": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "enabled": {
          "type": "boolean"
        },
        "listen_addr": {
          "type": "string"
        }
      }
    },
    "housekeeping": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "log_sweep_schedule": {
          "type": "string"
        },
        "stats_interval": {
          "type": "string"
        }
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level": {
          "type": "string",
          "enum": ["debug", "info", "warn", "error"]
        },
        "file": {
          "type": "string"
        },
        "console": {
          "type": "boolean"
        },
        "pretty": {
          "type": "boolean"
        },
        "max_size": {
          "type": "integer",
          "minimum": 0
        },
        "max_age": {
          "type": "integer",
          "minimum": 0
        },
        "compress": {
          "type": "boolean"
        },
        "redaction": {
          "type": "boolean"
        }
      }
    },
    "data_dir": {
      "type": "string"
    }
  }
}`
