package config

// Normalize fills unset fields with workable defaults.
func Normalize(cfg *Config) {
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = 115200
	}
	if cfg.Serial.DataBits == 0 {
		cfg.Serial.DataBits = 8
	}
	if cfg.Serial.StopBits == 0 {
		cfg.Serial.StopBits = 1
	}
	if cfg.Serial.Parity == "" {
		cfg.Serial.Parity = "N"
	}
	if cfg.Serial.TimeoutMs == 0 {
		cfg.Serial.TimeoutMs = 250
	}
	if cfg.Serial.RingSize == 0 {
		cfg.Serial.RingSize = 256
	}
	if cfg.Serial.TxBufSize == 0 {
		cfg.Serial.TxBufSize = 256
	}
	if cfg.Shell.Name == "" {
		cfg.Shell.Name = "shell0"
	}
	if cfg.Shell.MaxCommands == 0 {
		cfg.Shell.MaxCommands = 16
	}
	if cfg.Shell.MaxArgv == 0 {
		cfg.Shell.MaxArgv = 8
	}
	if cfg.Shell.MaxLine == 0 {
		cfg.Shell.MaxLine = 128
	}
	if cfg.Shell.QueueDepth == 0 {
		cfg.Shell.QueueDepth = 8
	}
}
