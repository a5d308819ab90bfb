package globals

var WebReloadChan = make(chan bool)
var MetricsReloadChan = make(chan bool)
var PoolReloadChan = make(chan bool)
var ConversionReloadChan = make(chan bool)
