/*
Package builder compiles one template unit into its compilation target.

A Builder owns a single unit. The caller drives it through a build cycle:

 1. Start clears the instructions of the previous cycle.

 2. The unit's parser queues instructions through AddPart,
    AddBuildInstruction and Append. Part names must be unique within the
    cycle.

 3. Build links the automatic imports, then executes the queued
    instructions in order against the target environment: parts and the
    page are transpiled, compiled and installed as methods, `eval` source
    runs at build time, and `include`/`module` instructions mix capability
    sets in through the linker.

 4. When every instruction succeeded, the source timestamp handed to Build
    is recorded so that IsFresh can answer whether the next request needs a
    rebuild.

A failed Build leaves the freshness record untouched. By default whatever
was installed before the failure stays installed; WithAtomicInstall stages
the build in a clone of the target and commits it only on success.

A Builder is not safe for concurrent use. Callers serialize cycles on the
same unit.
*/
package builder
