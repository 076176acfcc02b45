package constraints

import (
	"testing"

	"github.com/chic-lang/chic/internal/mir"
)

func TestSinkPreservesEmissionOrder(t *testing.T) {
	var sink Sink
	sink.Emit(ImplementsInterface("Widget", "Drawable", mir.Span{Line: 1}))
	sink.Emit(ThreadingBackendAvailable("main", "posix-threads", "spawn", mir.Span{Line: 2}))
	sink.Emit(RequiresAutoTrait("main", "payload", mir.Named("Widget"), TraitThreadSafe, OriginThreadSpawn, mir.Span{Line: 3}))

	all := sink.All()
	if len(all) != 3 {
		t.Fatalf("Len() = %d, want 3", sink.Len())
	}
	if all[0].Kind != KindImplementsInterface {
		t.Errorf("constraint 0 kind = %d, want KindImplementsInterface", all[0].Kind)
	}
	if all[1].Kind != KindThreadingBackendAvailable {
		t.Errorf("constraint 1 kind = %d, want KindThreadingBackendAvailable", all[1].Kind)
	}
	if all[2].Kind != KindRequiresAutoTrait || all[2].TraitKind != TraitThreadSafe {
		t.Errorf("constraint 2 = %+v, want RequiresAutoTrait/ThreadSafe", all[2])
	}
}
