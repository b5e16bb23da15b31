package pipeline

import (
	"fmt"
	"log"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// systemResourcesOK verifies that the system has enough free resources to
// start another job.
func (p *Pipeline) systemResourcesOK() error {
	// CPU
	usage, err := cpu.Percent(time.Second, false)
	if err != nil {
		log.Printf("Warning: could not get CPU usage: %v", err)
	} else if len(usage) > 0 && usage[0] > (100.0-p.cfg.ThrottleCPU) {
		return fmt.Errorf("not enough idle CPU. Current usage: %.2f%%, Idle threshold: %.2f%%", usage[0], p.cfg.ThrottleCPU)
	}

	// Memory
	vm, err := mem.VirtualMemory()
	if err != nil {
		log.Printf("Warning: could not get memory usage: %v", err)
	} else if vm.Available < uint64(p.cfg.ThrottleFreeMem) {
		return fmt.Errorf("not enough free memory. Available: %d, Required: %d", vm.Available, p.cfg.ThrottleFreeMem)
	}

	// Disk
	d, err := disk.Usage(p.cfg.ProcessedDir)
	if err != nil {
		log.Printf("Warning: could not get disk usage for %s: %v", p.cfg.ProcessedDir, err)
	} else if d.Free < uint64(p.cfg.ThrottleFreeDisk) {
		return fmt.Errorf("not enough free disk space. Available: %d, Required: %d", d.Free, p.cfg.ThrottleFreeDisk)
	}
	return nil
}
