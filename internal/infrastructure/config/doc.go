// Package config loads and validates the BosVes API configuration.
//
// Values are resolved in this order, later sources winning:
//   - Defaults (Default)
//   - The YAML file passed to Load
//   - BOSVES_* environment variables
//
// Secrets (JWT secret, MQTT password, InfluxDB token) are expected to come
// from the environment or a .env file loaded by the CLI, not from the YAML
// file. API client secrets are stored only as argon2id hashes.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Address())
package config
