// Package discovery finds flood prediction services on the local network
// over multicast DNS and announces the browser form.
//
// Prediction services advertise "_floodpredict._tcp". The TXT record may
// carry "path=/predict" and "version=<model>". A scan listens for the
// configured timeout and returns every instance it heard:
//
//	services, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, svc := range services {
//	    fmt.Println(svc.Instance, svc.BaseURL())
//	}
//
// `flood-predict serve --advertise` registers "_floodform._tcp" so other
// machines can find the form.
//
// mDNS needs multicast on the interface and UDP 5353 open in the firewall.
package discovery
