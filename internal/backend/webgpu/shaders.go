//go:build windows

package webgpu

// workgroupSize is the number of threads per workgroup in every shader below.
const workgroupSize = 256

// aggregateForwardShader: e[b,k,d] = Σ_i a[b,i,k] * (x[b,i,d] - c[k,d]).
const aggregateForwardShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> x: array<f32>;
@group(0) @binding(2) var<storage, read> c: array<f32>;
@group(0) @binding(3) var<storage, read_write> e: array<f32>;

struct Params {
    B: u32,
    N: u32,
    K: u32,
    D: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.B * params.K * params.D) {
        return;
    }
    let d = idx % params.D;
    let k = (idx / params.D) % params.K;
    let b = idx / (params.D * params.K);

    let cv = c[k * params.D + d];
    var sum: f32 = 0.0;
    for (var i: u32 = 0u; i < params.N; i = i + 1u) {
        let row = b * params.N + i;
        sum = sum + a[row * params.K + k] * (x[row * params.D + d] - cv);
    }
    e[idx] = sum;
}
`

// aggregateBackwardAShader: ga[b,i,k] = Σ_d ge[b,k,d] * (x[b,i,d] - c[k,d]).
const aggregateBackwardAShader = `
@group(0) @binding(0) var<storage, read> ge: array<f32>;
@group(0) @binding(1) var<storage, read> x: array<f32>;
@group(0) @binding(2) var<storage, read> c: array<f32>;
@group(0) @binding(3) var<storage, read_write> ga: array<f32>;

struct Params {
    B: u32,
    N: u32,
    K: u32,
    D: u32,
}
@group(0) @binding(4) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.B * params.N * params.K) {
        return;
    }
    let k = idx % params.K;
    let row = idx / params.K;
    let b = row / params.N;

    var sum: f32 = 0.0;
    for (var d: u32 = 0u; d < params.D; d = d + 1u) {
        sum = sum + ge[(b * params.K + k) * params.D + d] * (x[row * params.D + d] - c[k * params.D + d]);
    }
    ga[idx] = sum;
}
`

// aggregateBackwardXShader: gx[b,i,d] = Σ_k ge[b,k,d] * a[b,i,k].
const aggregateBackwardXShader = `
@group(0) @binding(0) var<storage, read> ge: array<f32>;
@group(0) @binding(1) var<storage, read> a: array<f32>;
@group(0) @binding(2) var<storage, read_write> gx: array<f32>;

struct Params {
    B: u32,
    N: u32,
    K: u32,
    D: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.B * params.N * params.D) {
        return;
    }
    let d = idx % params.D;
    let row = idx / params.D;
    let b = row / params.N;

    var sum: f32 = 0.0;
    for (var k: u32 = 0u; k < params.K; k = k + 1u) {
        sum = sum + ge[(b * params.K + k) * params.D + d] * a[row * params.K + k];
    }
    gx[idx] = sum;
}
`

// aggregateBackwardCShader: gc[k,d] = -Σ_{b,i} ge[b,k,d] * a[b,i,k].
const aggregateBackwardCShader = `
@group(0) @binding(0) var<storage, read> ge: array<f32>;
@group(0) @binding(1) var<storage, read> a: array<f32>;
@group(0) @binding(2) var<storage, read_write> gc: array<f32>;

struct Params {
    B: u32,
    N: u32,
    K: u32,
    D: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx >= params.K * params.D) {
        return;
    }
    let d = idx % params.D;
    let k = idx / params.D;

    var sum: f32 = 0.0;
    for (var b: u32 = 0u; b < params.B; b = b + 1u) {
        let g = ge[(b * params.K + k) * params.D + d];
        for (var i: u32 = 0u; i < params.N; i = i + 1u) {
            sum = sum + g * a[(b * params.N + i) * params.K + k];
        }
    }
    gc[idx] = -sum;
}
`
