// Package config loads and saves the flood-predict configuration file.
//
// The file lives in the platform configuration directory
// (see GetConfigDir) as config.yaml:
//
//	version: 1
//	service:
//	    base_url: http://127.0.0.1:8000
//	    predict_path: /predict
//	    timeout: 30s
//	submission:
//	    policy: last-sent-wins
//	web:
//	    listen: 127.0.0.1:8080
//	defaults:
//	    Urbanization: 4.5
//
// Precedence is flags, then environment (FLOOD_PREDICT_URL,
// FLOOD_LOG_LEVEL, FLOOD_WEB_LISTEN), then the file, then DefaultConfig.
// A missing file is not an error.
package config
